package main

import (
	"fmt"
	"os"
	"os/signal"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/biblia/internal/prayer"
)

func newPrayerCommand() *cobra.Command {
	prayerCommand := &cobra.Command{
		Use:   "prayer",
		Short: "Record and play time-locked prayers",
	}
	prayerCommand.AddCommand(newPrayerRecordCommand(), newPrayerPlayCommand())
	return prayerCommand
}

func newPrayerRecordCommand() *cobra.Command {
	var unlock string
	var from string
	command := &cobra.Command{
		Use:   "record <book> <chapter> <verse>",
		Short: "Record a prayer that can only be played from the unlock date on",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if unlock == "" {
				return prayer.ErrMissingUnlockDate
			}
			unlockDate, err := prayer.ParseDate(unlock)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := verseArg(a.session.Bible, args)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer cancel()
			recorder := a.session.Prayers
			recording, err := recorder.StartRecording(ctx, ref, prayer.FileCapturer{
				Path:      from,
				ChunkSize: a.cfg.Prayers.ChunkSize,
				Stdin:     cmd.InOrStdin(),
			})
			if err != nil {
				return fmt.Errorf("recorder.StartRecording() > %w", err)
			}
			if from == "-" {
				_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "Recording from standard input, press Ctrl+C to stop...")
			}
			select {
			case <-recorder.Drained():
			case <-ctx.Done():
			}

			clip, err := recorder.StopRecording()
			if err != nil {
				return fmt.Errorf("recorder.StopRecording() > %w", err)
			}
			saved, err := recorder.SavePrayer(cmd.Context(), ref, unlockDate)
			if err != nil {
				return fmt.Errorf("recorder.SavePrayer() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Prayer %s saved for %s: about %ds, locked until %s\n",
				recording.ID, ref, clip.Duration, saved.UnlockDate)
			return nil
		},
	}
	command.Flags().StringVar(&unlock, "unlock", "", "date from which the prayer can be played (YYYY-MM-DD)")
	command.Flags().StringVar(&from, "from", "-", `encoded audio file, or "-" for standard input`)
	return command
}

func newPrayerPlayCommand() *cobra.Command {
	var out string
	command := &cobra.Command{
		Use:   "play <book> <chapter> <verse>",
		Short: "Write the audio of an unlocked prayer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := verseArg(a.session.Bible, args)
			if err != nil {
				return err
			}
			playback, err := a.session.Prayers.Play(cmd.Context(), ref)
			if err != nil {
				return fmt.Errorf("prayers.Play() > %w", err)
			}
			if playback.Locked {
				_, _ = color.New(color.FgYellow).Fprintf(cmd.OutOrStdout(),
					"The prayer for %s recorded on %s is locked until %s (%ds)\n",
					ref, playback.RecordDate, playback.UnlockDate, playback.Duration)
				return nil
			}

			if out == "" {
				_, err := cmd.OutOrStdout().Write(playback.Audio)
				return err
			}
			if err := os.WriteFile(out, playback.Audio, 0644); err != nil {
				return fmt.Errorf("os.WriteFile(%s) > %w", out, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "Prayer for %s recorded on %s written to %s\n", ref, playback.RecordDate, out)
			return nil
		},
	}
	command.Flags().StringVar(&out, "out", "", "file to write the audio to; standard output when empty")
	return command
}
