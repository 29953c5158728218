// Package normalize reduces heterogeneous dataset items to the fixed Record
// schema and resolves media locators from post items.
//
// Source services rename fields between actor versions, so every field is read
// through an ordered alias list. Missing or mistyped values default instead of
// failing; only a non-object item is reported, as services.ErrSchema.
package normalize
