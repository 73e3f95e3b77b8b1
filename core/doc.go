// Package core contains the bridge contracts, the credential and choice relays,
// and the lifecycle manager. Adapters and stores depend on this package; core
// must not depend on them.
package core
