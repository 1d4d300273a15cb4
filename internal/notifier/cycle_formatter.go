package notifier

import (
	"fmt"
	"time"

	"github.com/aleister1102/neveridle/internal/models"
)

// FormatCycleReport renders a cycle report as a webhook message
func FormatCycleReport(hostname string, report models.CycleReport) models.DiscordMessagePayload {
	outcome := report.Outcome()

	color := SuccessEmbedColor
	switch outcome {
	case models.OutcomeWarning:
		color = WarningEmbedColor
	case models.OutcomeFailure:
		color = ErrorEmbedColor
	}

	embed := NewDiscordEmbedBuilder().
		WithTitle(fmt.Sprintf("Cycle #%d %s", report.Number, outcome)).
		WithDescription(fmt.Sprintf("Host `%s` (PID %d) finished a cycle in %s.",
			hostname, report.PID, report.Duration().Round(time.Second))).
		WithColor(color).
		WithTimestamp(report.FinishedAt).
		AddField("Memory", report.MemoryLine(), false).
		AddField("CPU", report.CPULine(), false).
		AddField("Network", report.ThroughputLine(), false).
		WithFooter(string(report.Status())).
		Build()

	return models.DiscordMessagePayload{
		Username: DiscordUsername,
		Embeds:   []models.DiscordEmbed{embed},
	}
}
