package rpc

import "context"

// EpochInfo is the getEpochInfo result.
type EpochInfo struct {
	Epoch            uint64 `json:"epoch"`
	SlotIndex        uint64 `json:"slotIndex"`
	SlotsInEpoch     uint64 `json:"slotsInEpoch"`
	AbsoluteSlot     uint64 `json:"absoluteSlot"`
	BlockHeight      uint64 `json:"blockHeight"`
	TransactionCount uint64 `json:"transactionCount,omitempty"`
}

// Progress returns how far into the epoch the cluster is, between 0 and 1.
func (e EpochInfo) Progress() float64 {
	if e.SlotsInEpoch == 0 {
		return 0
	}
	return float64(e.SlotIndex) / float64(e.SlotsInEpoch)
}

// GetEpochInfo fetches the current epoch and slot counters.
func (c *HTTPClient) GetEpochInfo(ctx context.Context) (EpochInfo, error) {
	var out EpochInfo
	if err := c.Call(ctx, methodGetEpochInfo, nil, &out); err != nil {
		return EpochInfo{}, err
	}
	return out, nil
}
