// Package opponent provides automated move choosers.
//
// Heuristic needs nothing external. LLM asks an OpenAI-compatible chat
// completions endpoint, parses the answer leniently and falls back to
// another chooser when the model is unreachable or answers with something
// unusable. Neither chooser applies moves; callers submit the proposal
// through the normal move validation.
package opponent
