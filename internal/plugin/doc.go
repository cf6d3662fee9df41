// Package plugin hosts the blur extension inside an editor.
//
// An Extension owns the pieces the host needs to support obscured text:
//
//   - the "blur-selected-text" command, bound to Mod+Shift+Q, which wraps
//     the selection in the configured markers
//   - a markdown post-processor that rewrites marked spans in rendered
//     blocks into obscured elements
//   - the style rule that renders those elements blurred
//   - the interaction registry that routes pointer events to elements
//
// Load registers everything and Unload removes it again:
//
//	store, _ := settings.Open("data.json")
//	ext, err := plugin.New(plugin.Deps{Settings: store, Clipboard: cb})
//	if err != nil {
//	    return err
//	}
//	if err := ext.Load(ctx); err != nil {
//	    return err
//	}
//	defer ext.Unload()
//
//	html, err := ext.RenderHTML(note)
//
// Marker changes made through the settings store apply to the next render
// and the next command invocation without reloading the extension.
package plugin
