package mime

var Extension = map[string]MIME{
	".css":  CSS,
	".gif":  GIF,
	".htm":  HTML,
	".html": HTML,
	".ico":  ICO,
	".jpeg": JPEG,
	".jpg":  JPEG,
	".js":   JS,
	".mjs":  JS,
	".json": JSON,
	".pdf":  PDF,
	".png":  PNG,
	".svg":  SVG,
	".txt":  Plain,
	".wasm": WASM,
	".webp": WEBP,
	".xml":  XML,
	".yaml": YAML,
	".yml":  YAML,
	".zip":  ZIP,
}
