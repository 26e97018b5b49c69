// Package content defines the domain types shared by the synchronization
// engine: package identities and descriptors reported by content providers,
// repositories, global package versions, and the associations that link a
// repository to the package versions it holds.
package content
