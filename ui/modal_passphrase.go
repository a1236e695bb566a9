package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"logchat/config"
)

// PassphraseModal prompts for the passphrase of the SSH key that seals the
// credentials file. Enter tries to unlock the store; a wrong passphrase
// keeps the modal open.
type PassphraseModal struct {
	store     *config.CredentialStore
	keyPath   string
	input     textinput.Model
	err       string
	width     int
	height    int
	cancelled bool
	unlocked  bool
}

func NewPassphraseModal(store *config.CredentialStore, keyPath string) PassphraseModal {
	input := NewPassphraseInput("Enter passphrase")
	input.Focus()

	return PassphraseModal{
		store:   store,
		keyPath: keyPath,
		input:   input,
	}
}

func (m PassphraseModal) Init() tea.Cmd {
	return textinput.Blink
}

func (m PassphraseModal) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.cancelled = true
			return m, tea.Quit

		case "enter":
			passphrase := m.input.Value()
			if err := ValidatePassphraseNotEmpty(passphrase); err != nil {
				m.err = GetEmptyPassphraseError()
				return m, nil
			}
			if err := LoadCredentialsWithPassphrase(m.store, passphrase); err != nil {
				m.err = GetIncorrectPassphraseError()
				m.input.SetValue("")
				return m, nil
			}
			m.unlocked = true
			return m, tea.Quit
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m PassphraseModal) View() string {
	return RenderPassphraseModal("SSH Key Passphrase Required", m.keyPath, m.input, m.err, m.width, m.height)
}

// Unlocked reports whether the credentials were loaded.
func (m PassphraseModal) Unlocked() bool {
	return m.unlocked
}

// IsCancelled returns true if the user pressed Esc
func (m PassphraseModal) IsCancelled() bool {
	return m.cancelled
}

// NewPassphraseInput creates a masked textinput for secrets.
func NewPassphraseInput(placeholder string) textinput.Model {
	input := textinput.New()
	input.Placeholder = placeholder
	input.Width = 50
	input.CharLimit = 200
	input.EchoMode = textinput.EchoPassword
	input.EchoCharacter = '•'
	return input
}

// RenderPassphraseModal renders the passphrase prompt.
func RenderPassphraseModal(title, keyPath string, input textinput.Model, errorMsg string, width, height int) string {
	if width < 20 || height < 10 {
		return "Terminal too small"
	}
	modalWidth := modalWidthFor(70, width)

	lines := []string{
		centerTextLine("Your credentials are sealed with an SSH key.", modalWidth),
		centerTextLine(fmt.Sprintf("Key: %s", keyPath), modalWidth),
		centerTextLine("Please enter the passphrase:", modalWidth),
		strings.Repeat(" ", modalWidth),
		centerTextLine(input.View(), modalWidth),
	}
	if errorMsg != "" {
		styledErr := lipgloss.NewStyle().
			Foreground(dangerColor).
			Bold(true).
			Render("⚠ " + errorMsg)
		lines = append(lines, strings.Repeat(" ", modalWidth), centerTextLine(styledErr, modalWidth))
	}

	return RenderThreeSectionModal(title, lines, FormatFooter("Enter", "Continue", "Esc", "Cancel"), ModalTypeInfo, modalWidth, width, height)
}

// ValidatePassphraseNotEmpty returns an error for an empty passphrase.
func ValidatePassphraseNotEmpty(passphrase string) error {
	if passphrase == "" {
		return fmt.Errorf("passphrase cannot be empty")
	}
	return nil
}

func GetEmptyPassphraseError() string {
	return "Passphrase cannot be empty"
}

func GetIncorrectPassphraseError() string {
	return "Incorrect passphrase. Please try again."
}

// LoadCredentialsWithPassphrase sets the passphrase on store and loads the
// sealed credentials with it.
func LoadCredentialsWithPassphrase(store *config.CredentialStore, passphrase string) error {
	if store == nil {
		return errors.New("no credential store")
	}
	store.SetPassphrase(passphrase)

	config.DebugLog.Debugf("[PassphraseModal] Attempting to load credentials")
	if err := store.Load(); err != nil {
		config.DebugLog.Warnf("[PassphraseModal] Failed to load credentials: %v", err)
		return err
	}
	config.DebugLog.Infof("[PassphraseModal] Credentials unlocked")
	return nil
}
