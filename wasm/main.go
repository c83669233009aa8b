//go:build wasm

package main

import (
	"syscall/js"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("DiscloseNewExtractor", js.FuncOf(newExtractor))
	js.Global().Set("DiscloseExtract", js.FuncOf(extractTranscript))
	js.Global().Set("DiscloseExtractBatch", js.FuncOf(extractBatch))
	js.Global().Set("DiscloseVerify", js.FuncOf(verifyPlan))
	js.Global().Set("DiscloseCloseExtractor", js.FuncOf(closeExtractor))
	js.Global().Set("DiscloseGetBuiltinProfiles", js.FuncOf(getBuiltinProfiles))

	// Keep WASM running
	<-make(chan struct{})
}
