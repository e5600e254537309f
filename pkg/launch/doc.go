// Package launch holds the handlers that carry out an application launch
// on a cloud provider, and the registry that resolves them by the name
// stored on an application version.
package launch
