// Package transcription defines the speech-to-text capability the daemon
// owns: a RequestResponse provider from an audio path to ordered segments.
//
// Backends register a factory with a Registry and are selected by name from
// configuration:
//
//   - transcription/whisper: faster-whisper compatible HTTP sidecar
//   - transcription/command: one executable run per request
//
// # Usage
//
//	reg := transcription.NewRegistry()
//	reg.RegisterFactory(whisper.ProviderName, whisper.Factory())
//	p, err := reg.Create("whisper", opts)
//	resp, err := p.Execute(ctx, transcription.Request{AudioPath: path, BeamSize: 1})
//	text := resp.Transcript()
package transcription
