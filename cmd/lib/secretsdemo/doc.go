// Package secretsdemo implements the logic for the secretsdemo binary.
//
// To use this library, create a package with main function as:
//
//	func main() {
//		os.Exit(secretsdemo.Run())
//	}
//
// The binary reads secrets from the local secrets mount and from a KV version
// 2 store, and watches them for changes. It only ever prints secret names,
// lengths and versions.
package secretsdemo
