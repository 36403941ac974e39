// Package testutil provides test doubles for the upstream APIs the pipeline
// calls and helpers that tie component lifecycles to a test.
//
// LanguageModel and SpeechEngine are httptest servers speaking the OpenAI
// chat completions and Azure text to speech wire formats closely enough for
// the real adapters to talk to them:
//
//	llm := testutil.NewLanguageModel(t, testutil.ScriptAnswer(doc))
//	cfg.LLM.BaseURL = llm.URL()
//
//	tts := testutil.NewSpeechEngine(t, []byte("ID3..."))
//	cfg.Speech.Endpoint = tts.URL()
package testutil
