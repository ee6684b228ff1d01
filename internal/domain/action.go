package domain

// ActionType is the closed set of transaction kinds a raw action text maps to.
type ActionType string

const (
	ActionExchange         ActionType = "exchange"
	ActionDividend         ActionType = "dividend"
	ActionContribution     ActionType = "contribution"
	ActionTransfer         ActionType = "transfer"
	ActionAssignment       ActionType = "assignment"
	ActionBuyAssigned      ActionType = "buy_assigned"
	ActionSellToOpen       ActionType = "sell_to_open"
	ActionSellToClose      ActionType = "sell_to_close"
	ActionBuyToClose       ActionType = "buy_to_close"
	ActionBuyToOpen        ActionType = "buy_to_open"
	ActionRealizedGainLoss ActionType = "realized_gain_loss"
	ActionReinvestment     ActionType = "reinvestment"
)

// AllActionTypes lists every member of the enumeration.
var AllActionTypes = []ActionType{
	ActionExchange,
	ActionDividend,
	ActionContribution,
	ActionTransfer,
	ActionAssignment,
	ActionBuyAssigned,
	ActionSellToOpen,
	ActionSellToClose,
	ActionBuyToClose,
	ActionBuyToOpen,
	ActionRealizedGainLoss,
	ActionReinvestment,
}

// OpeningActions establish a new position.
var OpeningActions = []ActionType{ActionSellToOpen, ActionBuyToOpen}

// ClosingActions reduce or close an existing position.
var ClosingActions = []ActionType{ActionSellToClose, ActionBuyToClose}

// TradingActions are the option trades the position matcher works on.
var TradingActions = []ActionType{ActionSellToOpen, ActionBuyToClose, ActionSellToClose, ActionBuyToOpen}

// IsValid reports whether a is a member of the enumeration.
func (a ActionType) IsValid() bool {
	for _, t := range AllActionTypes {
		if a == t {
			return true
		}
	}
	return false
}

// IsOpening reports whether a establishes a position.
func (a ActionType) IsOpening() bool {
	return a == ActionSellToOpen || a == ActionBuyToOpen
}

// IsClosing reports whether a closes a position.
func (a ActionType) IsClosing() bool {
	return a == ActionSellToClose || a == ActionBuyToClose
}

// ParseActionType converts a stored string back to an ActionType.
func ParseActionType(s string) (ActionType, bool) {
	a := ActionType(s)
	return a, a.IsValid()
}
