package styles

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/furkanakkurt/taskmanager/internal/models"
)

// Palette is the set of colors the CLI renders with
type Palette struct {
	Accent    string
	Title     string
	Subtle    string
	Normal    string
	InfoFg    string
	InfoBg    string
	ErrorFg   string
	ErrorBg   string
	WarningFg string
	WarningBg string
}

// DefaultPalette is used unless Init is called with another palette
func DefaultPalette() Palette {
	return Palette{
		Accent:    "#7C3AED",
		Title:     "#F9FAFB",
		Subtle:    "#9CA3AF",
		Normal:    "#E5E7EB",
		InfoFg:    "#FFFFFF",
		InfoBg:    "#059669",
		ErrorFg:   "#FFFFFF",
		ErrorBg:   "#DC2626",
		WarningFg: "#111827",
		WarningBg: "#F59E0B",
	}
}

var (
	// Card styles
	CardStyle lipgloss.Style
	CardWidth = 80

	// Text styles
	TitleStyle    lipgloss.Style
	SubtitleStyle lipgloss.Style
	LabelStyle    lipgloss.Style // For field labels like "Status:", "Priority:"
	ValueStyle    lipgloss.Style // For field values
	SectionStyle  lipgloss.Style // For section headers like "Description", "Attachments"

	// Status styles
	SuccessStyle lipgloss.Style
	ErrorStyle   lipgloss.Style
	WarningStyle lipgloss.Style
)

func init() {
	Init(DefaultPalette())
}

// Init initializes all CLI styles with the given palette
func Init(colors Palette) {
	CardStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(colors.Accent)).
		Padding(1, 2).
		Width(CardWidth)

	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Title))

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Subtle))

	LabelStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.Accent))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Normal))

	SectionStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color(colors.Accent)).
		Bold(true).
		MarginTop(1)

	SuccessStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.InfoFg)).
		Background(lipgloss.Color(colors.InfoBg)).
		Padding(0, 1)

	ErrorStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.ErrorFg)).
		Background(lipgloss.Color(colors.ErrorBg)).
		Padding(0, 1)

	WarningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color(colors.WarningFg)).
		Background(lipgloss.Color(colors.WarningBg)).
		Padding(0, 1)
}

// ═══════════════════════════════════════════════════════════════════
// HELPER FUNCTIONS
// ═══════════════════════════════════════════════════════════════════

// ColoredText renders text with a hex color
func ColoredText(text, hexColor string) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(hexColor)).
		Render(text)
}

// RenderCategoryChip renders a category as "[name]" in the category's color
func RenderCategoryChip(c models.Category) string {
	return lipgloss.NewStyle().
		Foreground(lipgloss.Color(c.Color)).
		Bold(true).
		Render("[" + c.Name + "]")
}

var statusColors = map[models.TaskStatus]string{
	models.StatusPending:    "#9CA3AF",
	models.StatusInProgress: "#3B82F6",
	models.StatusCompleted:  "#10B981",
}

var priorityColors = map[models.TaskPriority]string{
	models.PriorityLow:    "#6B7280",
	models.PriorityMedium: "#F59E0B",
	models.PriorityHigh:   "#EF4444",
}

// RenderStatus renders a task status in its color
func RenderStatus(s models.TaskStatus) string {
	return ColoredText(string(s), statusColors[s])
}

// RenderPriority renders a task priority in its color
func RenderPriority(p models.TaskPriority) string {
	return ColoredText(string(p), priorityColors[p])
}

// RenderField renders "Label: value" for card bodies
func RenderField(label, value string) string {
	return LabelStyle.Render(label+":") + " " + ValueStyle.Render(value)
}

// RenderProgress renders a percentage as a ten cell bar
func RenderProgress(percent int) string {
	filled := percent / 10
	bar := ""
	for i := 0; i < 10; i++ {
		if i < filled {
			bar += "█"
		} else {
			bar += "░"
		}
	}
	return fmt.Sprintf("%s %d%%", LabelStyle.Render(bar), percent)
}

// RenderCard wraps content in a styled card border
func RenderCard(content string) string {
	return CardStyle.Render(content)
}
