package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/runegard/runegard/internal/audio"
	"github.com/runegard/runegard/internal/sounds"
)

func newSoundsCmd() *cobra.Command {
	var (
		play    string
		volume  float64
		device  string
		asJSON  bool
		devices bool
	)

	cmd := &cobra.Command{
		Use:   "sounds",
		Short: "List chime sounds, or play one",
		Example: `  runegard sounds                      # list available sounds
  runegard sounds --json               # as JSON
  runegard sounds --play Glass         # preview a sound
  runegard sounds --devices            # list output devices`,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if devices {
				list, err := audio.ListDevices()
				if err != nil {
					return err
				}
				for _, d := range list {
					marker := " "
					if d.IsDefault {
						marker = "*"
					}
					fmt.Fprintf(out, "%s %s\n", marker, d.Name)
				}
				return nil
			}

			available := discoverSounds()

			if play != "" {
				if volume < 0 || volume > 1 {
					return fmt.Errorf("volume must be between 0.0 and 1.0 (got %.2f)", volume)
				}
				path := sounds.Resolve(play, available)
				if path == "" {
					return fmt.Errorf("sound %q not found", play)
				}
				player, err := audio.NewPlayer(device, volume)
				if err != nil {
					return fmt.Errorf("failed to create audio player: %w", err)
				}
				defer player.Close()

				fmt.Fprintf(out, "Playing: %s (volume: %d%%)\n", path, int(volume*100))
				return player.Play(path)
			}

			if asJSON {
				if available == nil {
					available = []sounds.SoundInfo{}
				}
				data, err := json.MarshalIndent(available, "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(out, string(data))
				return nil
			}

			if len(available) == 0 {
				fmt.Fprintln(out, "No sounds found.")
				return nil
			}
			source := ""
			for _, s := range available {
				if s.Source != source {
					source = s.Source
					fmt.Fprintf(out, "%s sounds:\n", source)
				}
				desc := ""
				if s.Description != "" {
					desc = " - " + s.Description
				}
				fmt.Fprintf(out, "  %s.%s%s\n", s.Name, s.Format, desc)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&play, "play", "", "play a sound by name or path")
	cmd.Flags().Float64Var(&volume, "volume", 0.3, "playback volume (0.0 to 1.0)")
	cmd.Flags().StringVar(&device, "device", "", "output device name (default system device)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output in JSON format")
	cmd.Flags().BoolVar(&devices, "devices", false, "list audio output devices")
	return cmd
}
