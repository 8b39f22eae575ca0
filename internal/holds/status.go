package holds

type HoldStatus string

const (
	StatusActive    HoldStatus = "ACTIVE"
	StatusConverted HoldStatus = "CONVERTED"
	StatusExpired   HoldStatus = "EXPIRED"
	StatusReleased  HoldStatus = "RELEASED"
)

func (s HoldStatus) String() string {
	return string(s)
}
