// Package ime is the SKK conversion core: it turns a stream of key codes
// into composed and committed text.
//
// # Architecture Overview
//
// The host (an on-screen keyboard, an IBus/TSF wrapper, or the skkctl
// replay driver) owns the text field. It feeds key codes into an Engine and
// receives composing text, commits and candidate lists through a Sink:
//
//	Key code → Engine.ProcessKey → state transition → Sink
//	                                    ↓
//	                     romaji table / dictionaries
//
// # States
//
// The engine is a cyclic automaton over a closed set of states. Every
// transition runs under the engine mutex against one EngineContext:
//
//	┌───────────────────┬──────────────────────────────────────────────┐
//	│ State             │ Meaning                                      │
//	├───────────────────┼──────────────────────────────────────────────┤
//	│ Hiragana          │ romaji commits as hiragana                   │
//	│ Katakana          │ romaji commits as katakana                   │
//	│ HalfWidthKatakana │ romaji commits as half-width katakana        │
//	│ Kanji             │ ▽ collecting a reading                       │
//	│ Okurigana         │ ▽ collecting the inflection tail             │
//	│ Choose            │ ▼ cycling conversion candidates              │
//	│ Narrowing         │ ▼ filtering candidates by a hint reading     │
//	│ Abbrev            │ ▽ Latin reading for abbreviation entries     │
//	│ ASCII             │ pass-through with word completion            │
//	│ FullWidthAlnum    │ full-width letters and digits                │
//	│ Emoji             │ pass-through for the emoji palette           │
//	└───────────────────┴──────────────────────────────────────────────┘
//
// Word registration is not a state. It stacks frames on the context and
// redirects commits into the frame until Enter or Cancel.
//
// # Concurrency
//
// Key handling is strictly sequential. The only background work is the
// completion search: each keystroke cancels the previous search, and a
// result is applied only if its generation is still current.
package ime
