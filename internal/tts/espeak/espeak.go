// Package espeak synthesizes speech with espeak-ng and plays it
// synchronously on the default output.
package espeak

/*
#cgo LDFLAGS: -lespeak-ng
#include <stdlib.h>
#include <string.h>
#include <espeak-ng/speak_lib.h>

int
espeak_say(const char *text, const char *voice, int rate, int volume)
{
	if (!text)
	{ return -1; }

	if (espeak_Initialize(AUDIO_OUTPUT_SYNCH_PLAYBACK, 500, NULL, 0) < 0)
	{ return -2; }

	espeak_VOICE specs = { .languages = voice };
	espeak_SetVoiceByProperties(&specs);
	espeak_SetParameter(espeakRATE, rate, 0);
	espeak_SetParameter(espeakVOLUME, volume, 0);

	espeak_Synth(text, strlen(text) + 1, 0, POS_CHARACTER, 0, espeakCHARS_AUTO, NULL, NULL);
	espeak_Synchronize();
	espeak_Terminate();

	return 0;
}
*/
import "C"

import (
	"fmt"
	"unsafe"

	"stofix/internal/tts"
)

// Engine implements tts.Engine. Calls must not overlap; the speaker
// actor guarantees that.
type Engine struct{}

func New() *Engine { return &Engine{} }

func (Engine) Speak(text string, p tts.Params) error {
	if text == "" {
		return nil
	}

	ctext := C.CString(text)
	defer C.free(unsafe.Pointer(ctext))

	cvoice := C.CString(p.Voice)
	defer C.free(unsafe.Pointer(cvoice))

	// espeak volume: 0..200, 100 is normal
	rc := C.espeak_say(ctext, cvoice, C.int(p.Rate), C.int(p.Volume*100))
	if rc != 0 {
		return fmt.Errorf("espeak_say failed: %d", int(rc))
	}

	return nil
}
