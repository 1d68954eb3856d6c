package ponder

import (
	"fmt"
	"strings"
)

// ControllerInstructions describes the command grammar to the controller.
const ControllerInstructions = `You are a research controller. You answer the user's query by issuing exactly one command per turn.

Commands:
  PEEK("<query text>")          search the document index; results are stored in working memory as peek_step_<n>
  SET("<key>", "<value>")       store a note in working memory
  DELETE("<key>")               remove a note from working memory
  ANSWER("<final answer text>") finish with the final answer

Rules:
- Quote every argument with double quotes. Write a literal double quote inside an argument as \".
- Arguments may span several lines and may contain JSON.
- Reply with the command only.`

// buildStepPrompt renders one reasoning-step prompt.
func buildStepPrompt(instructions, query, snapshot string, step, maxSteps int) string {
	var b strings.Builder
	b.WriteString(instructions)
	b.WriteString("\n\nUser query:\n")
	b.WriteString(query)
	b.WriteString("\n\nWorking memory:\n")
	if snapshot == "" {
		b.WriteString("(empty)")
	} else {
		b.WriteString(snapshot)
	}
	fmt.Fprintf(&b, "\n\nStep %d of %d. Next command:", step, maxSteps)
	return b.String()
}

// buildMapPrompt renders the per-chunk summarization prompt.
func buildMapPrompt(task, chunk string) string {
	return fmt.Sprintf("Task: %s\n\nPassage:\n%s\n\nSummarize the passage with respect to the task.", task, chunk)
}

// buildSynthesisPrompt renders the synthesis prompt over ordered summaries.
func buildSynthesisPrompt(task string, summaries []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Task: %s\n\n", task)
	for i, s := range summaries {
		fmt.Fprintf(&b, "--- Summary %d ---\n%s\n\n", i+1, s)
	}
	b.WriteString("Combine these summaries into one answer to the task.")
	return b.String()
}
