// Command cloudlaunchctl runs the CloudLaunch server, a REST backend for
// launching applications on AWS and OpenStack clouds.
//
// # Quick Start
//
//	# Generate a data key for encryption
//	export CLOUDLAUNCH_DATA_KEY="$(cloudlaunchctl data-key generate)"
//
//	# Run database migrations
//	cloudlaunchctl db migrate
//
//	# Create an administrator
//	cloudlaunchctl user create admin --staff
//
//	# Start the server with an in-process launch worker
//	cloudlaunchctl server --inline-worker
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - CLOUDLAUNCH_DATA_KEY: Base64-encoded 256-bit key for data encryption
//   - CLOUDLAUNCH_TOKEN_SECRET: API token signing secret (derived from the data key when unset)
//   - REDIS_URL: task queue; when unset launches are queued in memory and the server runs them itself
//   - CLOUDLAUNCH_CONFIG_PATH: directory holding cloudlaunch.yml (default: /etc/cloudlaunch)
//   - CLOUDLAUNCH_LOG_LEVEL, CLOUDLAUNCH_LOG_FORMAT: logging
//   - CLOUDLAUNCH_OTEL_ENDPOINT: OTLP/HTTP endpoint; tracing is off when unset
//   - PORT, BIND_ADDRESS: server listen address (default: 0.0.0.0:8000)
package main
