package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/djherbis/times"
	"github.com/dyuri/cave3d/internal/geometry"
	"github.com/dyuri/cave3d/internal/model"
	"github.com/spf13/cobra"
)

// info command
var infoCmd = &cobra.Command{
	Use:   "info <input.3d>",
	Short: "Display .3d file information",
	Long: `Display metadata and statistics about a .3d file.

Shows the header strings, survey style, counts of stations, legs and
tubes, the bounding box and the file timestamps.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfo,
}

func init() {
	infoCmd.Flags().Bool("json", false, "Output as JSON")
	infoCmd.Flags().Bool("brief", false, "Show only summary")
}

// fileTimes holds the timestamps the filesystem reports for a file
type fileTimes struct {
	Modified time.Time  `json:"modified"`
	Accessed time.Time  `json:"accessed"`
	Changed  *time.Time `json:"changed,omitempty"`
	Born     *time.Time `json:"born,omitempty"`
}

func statTimes(path string) (fileTimes, error) {
	ts, err := times.Stat(path)
	if err != nil {
		return fileTimes{}, fmt.Errorf("stat input file: %w", err)
	}

	ft := fileTimes{Modified: ts.ModTime(), Accessed: ts.AccessTime()}
	if ts.HasChangeTime() {
		t := ts.ChangeTime()
		ft.Changed = &t
	}
	if ts.HasBirthTime() {
		t := ts.BirthTime()
		ft.Born = &t
	}
	return ft, nil
}

func runInfo(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	jsonOutput, _ := cmd.Flags().GetBool("json")
	brief, _ := cmd.Flags().GetBool("brief")

	stat, err := os.Stat(inputPath)
	if err != nil {
		return fmt.Errorf("stat input file: %w", err)
	}
	ft, err := statTimes(inputPath)
	if err != nil {
		return err
	}

	s, err := loadSurvey(inputPath)
	if err != nil {
		return err
	}

	// Output based on format
	if jsonOutput {
		return outputInfoJSON(inputPath, s, stat.Size(), ft)
	}
	return outputInfoText(inputPath, s, stat.Size(), ft, brief)
}

// surveyBounds returns the raw bounding box of stations, or of leg
// vertices when there are none
func surveyBounds(s *model.Survey) geometry.Bounds {
	pts := s.Stations.Points()
	if len(pts) == 0 {
		for _, leg := range s.Legs {
			for _, run := range leg {
				pts = append(pts, run...)
			}
		}
	}
	return geometry.ComputeBounds(pts)
}

func segmentCount(s *model.Survey) int {
	n := 0
	for _, leg := range s.Legs {
		for _, run := range leg {
			n += len(run) - 1
		}
	}
	return n
}

func outputInfoText(path string, s *model.Survey, fileSize int64, ft fileTimes, brief bool) error {
	if brief {
		// Brief mode: just the counts
		fmt.Printf("%s: Title=%q Style=%s Stations=%d Legs=%d Tubes=%d\n",
			path,
			s.Header.Title,
			s.Style,
			s.Stations.Len(),
			s.LegCount(),
			len(s.Tubes))
		return nil
	}

	// Full human-readable output
	fmt.Printf("Survey File: %s\n", path)
	fmt.Println(strings.Repeat("=", 50))
	fmt.Println()

	// Header information
	fmt.Println("Header:")
	fmt.Printf("  Title:            %s\n", s.Header.Title)
	fmt.Printf("  Version:          %s\n", s.Header.Version)
	fmt.Printf("  Metadata:         %s\n", s.Header.Metadata)
	fmt.Printf("  Timestamp:        %s\n", s.Header.Timestamp)
	fmt.Printf("  Style:            %s\n", s.Style)
	fmt.Println()

	// Counts
	fmt.Println("Contents:")
	fmt.Printf("  Stations:         %d\n", s.Stations.Len())
	fmt.Printf("  Legs:             %d runs, %d segments\n", s.LegCount(), segmentCount(s))
	for _, key := range s.LegOrder {
		fmt.Printf("    %-22s %d runs\n", key.String()+":", len(s.Legs[key]))
	}
	fmt.Printf("  Tubes:            %d\n", len(s.Tubes))
	fmt.Printf("  Diagnostics:      %d\n", len(s.Diagnostics))
	fmt.Println()

	// Extent in metres
	if b := surveyBounds(s); !b.Empty {
		size := b.Size()
		fmt.Println("Extent:")
		fmt.Printf("  East-West:        %.2f m\n", size.X/100)
		fmt.Printf("  North-South:      %.2f m\n", size.Y/100)
		fmt.Printf("  Vertical:         %.2f m (%.2f to %.2f)\n", size.Z/100, b.Min.Z/100, b.Max.Z/100)
		fmt.Println()
	}

	// File information
	fmt.Printf("File Size:          %s (%d bytes)\n", formatBytes(fileSize), fileSize)
	fmt.Printf("Modified:           %s\n", ft.Modified.Format(time.RFC3339))
	if ft.Born != nil {
		fmt.Printf("Created:            %s\n", ft.Born.Format(time.RFC3339))
	}
	fmt.Println()

	// Station flags summary, if not too many stations
	if n := s.Stations.Len(); n > 0 && n <= 20 {
		fmt.Println("Stations:")
		for _, st := range s.Stations.All() {
			fmt.Printf("  %-20s %s", st.Label, st.Pos)
			if names := st.Flags.Names(); len(names) > 0 {
				fmt.Printf(" [%s]", strings.Join(names, ","))
			}
			fmt.Println()
		}
	}

	return nil
}

func outputInfoJSON(path string, s *model.Survey, fileSize int64, ft fileTimes) error {
	info := map[string]interface{}{
		"file": path,
		"header": map[string]interface{}{
			"title":     s.Header.Title,
			"version":   s.Header.Version,
			"metadata":  s.Header.Metadata,
			"timestamp": s.Header.Timestamp,
		},
		"style": s.Style.String(),
		"counts": map[string]int{
			"stations":    s.Stations.Len(),
			"legs":        s.LegCount(),
			"segments":    segmentCount(s),
			"tubes":       len(s.Tubes),
			"diagnostics": len(s.Diagnostics),
		},
		"fileSize": fileSize,
		"times":    ft,
	}

	legs := make(map[string]int, len(s.LegOrder))
	for _, key := range s.LegOrder {
		legs[key.String()] = len(s.Legs[key])
	}
	info["legs"] = legs

	if b := surveyBounds(s); !b.Empty {
		info["bounds"] = map[string]interface{}{
			"min": [3]float64{b.Min.X, b.Min.Y, b.Min.Z},
			"max": [3]float64{b.Max.X, b.Max.Y, b.Max.Z},
		}
	}

	// Pretty print JSON
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	return encoder.Encode(info)
}

func formatBytes(n int64) string {
	units := []string{"B", "KiB", "MiB", "GiB"}
	size, u := float64(n), 0
	for size >= 1024 && u < len(units)-1 {
		size /= 1024
		u++
	}
	if u == 0 {
		return fmt.Sprintf("%d B", n)
	}
	return fmt.Sprintf("%.1f %s", size, units[u])
}
