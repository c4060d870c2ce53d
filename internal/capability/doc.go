// Package capability discovers which host contract a package's code module
// implements. The set of contracts is closed (translate, dictionary, ocr, tts,
// vocabulary). Lua entry modules are executed in a restricted gopher-lua state
// and asked for their registration table; other modules fall back to the
// capability declared in their plugin.json.
package capability
