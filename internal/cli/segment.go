package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/johnquangdev/interview-analyzer/internal/domain/entities"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcript"
	"github.com/johnquangdev/interview-analyzer/internal/usecase/transcription"
)

// segmentOutput is what `pipeline segment` prints
type segmentOutput struct {
	Transcript   entities.Transcript `json:"transcript"`
	Duration     *int                `json:"duration"`
	Path         transcript.Path     `json:"attributionPath"`
	WordCount    int                 `json:"wordCount"`
	DroppedWords int                 `json:"droppedWords"`
}

func newSegmentCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "segment",
		Short: "Build a speaker-segmented transcript from saved ASR output",
		Long: "Runs speaker attribution, segment building, smoothing and duration estimation on a\n" +
			"verbose_json ASR response, optionally with diarizer turns, and prints the result.",
		Args: cobra.NoArgs,
		RunE: runSegment,
	}

	cmd.Flags().String("asr", "", "Path to the verbose_json ASR response")
	cmd.Flags().String("turns", "", "Path to a JSON array of {speaker, startTimeMs, endTimeMs}")
	cmd.Flags().Int("tolerance-ms", 150, "Turn boundary tolerance in milliseconds")
	cmd.Flags().Int("min-words", transcript.DefaultMinSegmentWords, "Segments shorter than this are merged into neighbours")
	_ = cmd.MarkFlagRequired("asr")
	return cmd
}

func runSegment(cmd *cobra.Command, _ []string) error {
	asrPath, _ := cmd.Flags().GetString("asr")
	turnsPath, _ := cmd.Flags().GetString("turns")
	toleranceMs, _ := cmd.Flags().GetInt("tolerance-ms")
	minWords, _ := cmd.Flags().GetInt("min-words")

	var asr entities.VerboseTranscription
	if err := readJSON(asrPath, &asr); err != nil {
		return fmt.Errorf("asr: %w", err)
	}

	var turns []entities.SpeakerTurn
	if turnsPath != "" {
		if err := readJSON(turnsPath, &turns); err != nil {
			return fmt.Errorf("turns: %w", err)
		}
		if err := transcription.ValidateSpeakerMetadata(turns); err != nil {
			return err
		}
	}

	builder := transcript.NewBuilder(transcript.Options{
		TurnTolerance:   time.Duration(toleranceMs) * time.Millisecond,
		MinSegmentWords: minWords,
	}, nil)
	res := builder.Build(&asr, turns)

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(segmentOutput{
		Transcript:   res.Transcript,
		Duration:     res.Duration,
		Path:         res.Path,
		WordCount:    res.WordCount,
		DroppedWords: res.DroppedWords,
	})
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
