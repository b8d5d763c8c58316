// Package plugin provides the plugin registry of the editor.
//
// A plugin is identified by the id of its manifest (for example
// "org.ekstep.text") and optionally by a short id used as its key in
// serialized stages. Plugins become instantiable once a Factory is registered
// for them; instances are renderable units placed on a stage:
//
//	reg := plugin.NewRegistry()
//	reg.Register(&plugin.Manifest{ID: "org.ekstep.text", Ver: "1.0"}, plugin.NewBase)
//	inst, err := reg.Instantiate("org.ekstep.text", body, stage)
//
// Bundles that are not built in are fetched by a Loader. A bundle lives in
// "<dir>/<id>-<ver>/" and carries a manifest.json; the Builder registered for
// the extension of its renderer.main turns it into a Factory.
//
// # Instance Contract
//
// Every instance reports its id, manifest and z-index, renders itself onto a
// surface, serializes itself with ToDocument and reports the media it needs
// with Media. Containers (stages) additionally own child instances.
//
// # Type Resolution
//
// ResolveType maps a live instance id back to the type of its plugin: the
// manifest type when declared, otherwise the manifest id. Unknown ids resolve
// to the empty string.
package plugin
