package services

import "avatar-relay/internal/models"

// InjectContext returns a copy of conv whose last turn carries the context block.
// Earlier turns are untouched and conv itself is never modified. Injecting twice
// appends the block twice.
func InjectContext(conv models.Conversation, block string) models.Conversation {
	out := conv.Clone()
	if len(out) == 0 {
		return models.Conversation{}
	}

	last := len(out) - 1
	out[last].Content = out[last].Content + "\n" + block
	return out
}
