// Package deploy implements the launch_appliance task: it loads a
// deployment, resolves its launch handler and provider, runs the launch and
// records the outcome on the deployment.
//
// Requests enqueue the task with Submit. Cloud credentials travel in the
// task payload sealed under the data key, bound to the task id.
package deploy
