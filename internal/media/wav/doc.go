// Package wav reads RIFF WAVE files. Header and chunk parsing is delegated to
// github.com/go-audio/wav; the PCM payload is cut into packets of a tenth of a
// second each.
package wav
