// Package model defines the GORM models backing the CloudLaunch API.
//
// # Catalog
//
//   - Application, ApplicationVersion, ApplicationVersionCloudConfig
//   - Cloud with its AWS (EC2, S3) or OpenStack details, CloudImage
//
// # Launches
//
//   - ApplicationDeployment: a launch request and its task outcome
//
// # Accounts
//
//   - User, UserProfile, AuthToken
//   - Credentials: per-cloud keys, with secrets sealed by the cipher
//     attached through WithCipher
//
// # Public services
//
//   - PublicService, Sponsor, Location, Tag
//
// Models validate themselves in their save hooks and report problems as a
// *ValidationError keyed by JSON field name.
package model
