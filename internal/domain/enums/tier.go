package enums

// Tier is one level of the moderation cascade.
type Tier string

const (
	TierPlatform  Tier = "platform"
	TierCategory  Tier = "category"
	TierCommunity Tier = "community"
)

func (t Tier) Valid() bool {
	switch t {
	case TierPlatform, TierCategory, TierCommunity:
		return true
	}
	return false
}
