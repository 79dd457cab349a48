// Package services defines the shared error taxonomy for docsort components.
//
// Every failure that crosses a package boundary is tagged with one of the
// exported sentinel errors so callers can classify it with errors.Is without
// inspecting message text. Wrap is the single helper for attaching component
// and operation context to an error while preserving the sentinel chain.
package services
