// Package encryption seals stored cloud credentials with AES-256-GCM.
//
// The data key is supplied as base64 in CLOUDLAUNCH_DATA_KEY and can be
// generated with "cloudlaunchctl data-key generate".
package encryption
