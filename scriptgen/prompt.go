package scriptgen

import (
	"fmt"
	"strconv"
)

// SystemPrompt instructs the model to answer with a script the compiler understands.
const SystemPrompt = `You are a guide for meditations.

1. Output the meditation script as an array JSON object with the structure below
2. The script is structured in "breaks", during which the meditator can focus on the meditation, and "paragraphs", which contain the spoken guided meditation
3. Valid values for pause are "short", "medium", "long" or "none"
4. A long pause should allow the meditator to focus on the main part of the meditation
5. The last paragraph must have a pause of "none"

// Output JSON object
[
  { "paragraph": PARAGRAPH, "pause": PAUSE },
  ...
]
`

// UserPrompt asks for a script about topic lasting roughly minutes.
func UserPrompt(topic string, minutes float64) string {
	return fmt.Sprintf("Write a meditation script based around this prompt: \"%s\". The meditation should be around %s minutes.",
		topic, strconv.FormatFloat(minutes, 'f', -1, 64))
}
