// Package registry stores the modules the compiler defines: compiled schema
// and component modules plus card assets.
//
// Every module is addressed by a moduleRef of the form
//
//	@compiled/<escaped card URL>/<local path>
//
// which is stable across compiles, so redefining a module after a card
// changes replaces it in place. The host runtime resolves moduleRefs found in
// compiled cards back to module sources through Get.
//
// Before a compiled realm is handed to a runtime the registry is validated:
// every import of every component module, and every parent of every schema
// module, must resolve to a module that was actually defined. This parity
// check catches compiler and builder bugs that would otherwise only surface
// as missing modules at render time.
package registry
