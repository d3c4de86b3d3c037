package session

// State 会话编排器的状态
type State int

const (
	StateStart State = iota
	StateWalletAcquired
	StateSigning
	StateIdle
	StateDone
	StateCancelled
)

var stateNames = map[State]string{
	StateStart:          "start",
	StateWalletAcquired: "wallet_acquired",
	StateSigning:        "signing",
	StateIdle:           "idle",
	StateDone:           "done",
	StateCancelled:      "cancelled",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// 合法的状态迁移。没有钱包时不能进入 Signing。
var transitions = map[State][]State{
	StateStart:          {StateWalletAcquired, StateCancelled},
	StateWalletAcquired: {StateSigning, StateCancelled},
	StateSigning:        {StateIdle, StateCancelled},
	StateIdle:           {StateSigning, StateDone, StateCancelled},
}

// CanTransition 判断 s -> to 是否合法
func (s State) CanTransition(to State) bool {
	for _, next := range transitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal Done 和 Cancelled 之后不再迁移
func (s State) Terminal() bool {
	return s == StateDone || s == StateCancelled
}
