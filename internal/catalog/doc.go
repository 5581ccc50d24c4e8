// Package catalog holds the storage-independent rules of the book catalog:
// primary-author selection, name and identifier canonicalization, the typed
// edit union accepted by the edit dispatcher, and the error taxonomy shared by
// all stores.
//
// Nothing in this package touches the database.
package catalog
