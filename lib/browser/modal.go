package browser

import (
	"strings"
	"time"
	"unicode/utf8"

	"magenta-backend/lib/textutil"

	"github.com/chromedp/cdproto/cdp"
)

// ModalConfig describes one provider's details overlay: how to open
// it from within a card, which elements count as the overlay, and how
// to get rid of it again.
type ModalConfig struct {
	// OpenText is the label substring of the "details" affordance
	// searched among buttons inside the card. No such button means
	// the modal is skipped entirely.
	OpenText string
	// OverlaySelector matches candidate overlay elements; when
	// several match (stacked dialogs), the last one is the active
	// modal.
	OverlaySelector string
	// CloseSelector is tried first for the close affordance.
	CloseSelector string
	// CloseTextHints are label/glyph fallbacks: an X glyph, a
	// "Kapat" style dismiss keyword.
	CloseTextHints []string
	// The sites emit no "content ready" signal, so populate and
	// close are modeled as fixed settle delays.
	PopulateDelay time.Duration
	CloseDelay    time.Duration
}

type modalState int

const (
	modalClosed modalState = iota
	modalOpening
	modalWaitingPopulate
	modalPopulated
	modalClosing
)

// OpenModal drives the details overlay for one card and returns its
// text. ok is false when no details affordance exists or the overlay
// never materialized; both are valid no-op outcomes, never errors.
// Cleanup is best effort: a missing close button still leaves the
// machine closed rather than wedging the pipeline.
func (p *Page) OpenModal(card *cdp.Node, cfg ModalConfig) (text string, ok bool) {
	state := modalClosed
	for {
		switch state {
		case modalClosed:
			btn := p.findButtonByText(card, cfg.OpenText)
			if btn == nil {
				return "", false
			}
			if p.ClickNode(btn) != nil {
				return "", false
			}
			state = modalOpening

		case modalOpening:
			p.Settle(cfg.PopulateDelay)
			state = modalWaitingPopulate

		case modalWaitingPopulate:
			overlays := p.Nodes(cfg.OverlaySelector, nil, time.Second)
			if len(overlays) == 0 {
				return "", false
			}
			modal := overlays[len(overlays)-1]
			modalText, err := p.NodeText(modal)
			if err != nil {
				return "", false
			}
			text = modalText
			ok = true
			state = modalPopulated

		case modalPopulated:
			state = modalClosing

		case modalClosing:
			p.closeModal(cfg)
			return text, ok
		}
	}
}

func (p *Page) closeModal(cfg ModalConfig) {
	overlays := p.Nodes(cfg.OverlaySelector, nil, time.Second)
	if len(overlays) == 0 {
		return
	}
	modal := overlays[len(overlays)-1]

	if cfg.CloseSelector != "" {
		closeBtns := p.Nodes(cfg.CloseSelector, modal, time.Second)
		if len(closeBtns) > 0 && p.ClickNode(closeBtns[0]) == nil {
			p.Settle(cfg.CloseDelay)
			return
		}
	}

	for _, candidate := range p.Nodes("button, span, i", modal, time.Second) {
		candidateText, err := p.NodeText(candidate)
		if err != nil {
			continue
		}
		if matchesCloseHint(candidateText, candidate, cfg.CloseTextHints) {
			if p.ClickNode(candidate) == nil {
				p.Settle(cfg.CloseDelay)
				return
			}
		}
	}
}

func matchesCloseHint(text string, n *cdp.Node, hints []string) bool {
	cleaned := textutil.CleanLine(text)
	for _, hint := range hints {
		// a single glyph hint ("✕", "X") must be the whole label;
		// containment would hit any button with an X in its text
		if utf8.RuneCountInString(hint) == 1 {
			if cleaned == hint {
				return true
			}
			continue
		}
		if strings.Contains(cleaned, hint) {
			return true
		}
	}
	// class-based heuristic as the last fallback
	return strings.Contains(strings.ToLower(n.AttributeValue("class")), "close")
}
