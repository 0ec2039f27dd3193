package utils

// SplitText splits a long string into chunks of approximately 'chunkSize'
// characters with an 'overlap' to preserve context at boundaries. Used to
// bound the captured-text portion of model prompts.
func SplitText(text string, chunkSize int, overlap int) []string {
	if len(text) <= chunkSize {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	totalLen := len(runes)

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	for i := 0; i < totalLen; i += step {
		end := i + chunkSize
		if end > totalLen {
			end = totalLen
		}

		chunks = append(chunks, string(runes[i:end]))

		if end == totalLen {
			break
		}
	}

	return chunks
}

// FirstChunk caps text at chunkSize runes; prompts only ever need the head
// of a long capture.
func FirstChunk(text string, chunkSize int) string {
	return SplitText(text, chunkSize, 0)[0]
}
