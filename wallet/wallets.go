package wallet

// Wallets is an in-memory registry of wallets keyed by address. Unlike the
// teacher's gob-file-backed store, this holds no disk state: spec.md
// section 1 excludes persistent storage, and section 3's Lifecycle says
// wallets "are created on demand and live for the session."
type Wallets struct {
	byAddress map[string]*Wallet
}

// NewWallets returns an empty wallet registry.
func NewWallets() *Wallets {
	return &Wallets{byAddress: make(map[string]*Wallet)}
}

// Add registers w under its own address, returning the address for
// convenience.
func (ws *Wallets) Add(w *Wallet) string {
	addr := w.Address()
	ws.byAddress[addr] = w
	return addr
}

// Get returns the wallet registered under address, if any.
func (ws *Wallets) Get(address string) (*Wallet, bool) {
	w, ok := ws.byAddress[address]
	return w, ok
}

// Addresses returns every address currently registered.
func (ws *Wallets) Addresses() []string {
	addrs := make([]string, 0, len(ws.byAddress))
	for a := range ws.byAddress {
		addrs = append(addrs, a)
	}
	return addrs
}
