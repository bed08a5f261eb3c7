package domain

// Channel is the discovery channel a candidate arrived through.
type Channel string

const (
	// ChannelStandard is the default discovery channel (DEX listings, token profiles).
	ChannelStandard Channel = "standard"
	// ChannelEarlyLaunch is the looser channel fed by on-chain launch events.
	ChannelEarlyLaunch Channel = "early-launch"
)

// String returns the string representation of Channel.
func (c Channel) String() string {
	return string(c)
}

// IsValid checks if the channel is a known value.
func (c Channel) IsValid() bool {
	return c == ChannelStandard || c == ChannelEarlyLaunch
}

// IsEarlyLaunch reports whether relaxed thresholds apply.
func (c Channel) IsEarlyLaunch() bool {
	return c == ChannelEarlyLaunch
}
