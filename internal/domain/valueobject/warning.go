package valueobject

// WarningLevel описывает, к чему приведёт следующее взыскание.
type WarningLevel string

const (
	WarningInformational        WarningLevel = "informational"
	WarningTemporaryRestriction WarningLevel = "temporary_restriction"
	WarningSuspension           WarningLevel = "suspension"
)

const DefaultMaxWarnings = 3

// ProjectWarning вычисляет последствия следующего взыскания по числу уже полученных.
func ProjectWarning(count, threshold int) WarningLevel {
	if threshold <= 0 {
		threshold = DefaultMaxWarnings
	}
	switch {
	case count >= threshold:
		return WarningSuspension
	case count == threshold-1:
		return WarningTemporaryRestriction
	default:
		return WarningInformational
	}
}

func (l WarningLevel) Message() string {
	switch l {
	case WarningSuspension:
		return "следующее взыскание приведёт к блокировке аккаунта"
	case WarningTemporaryRestriction:
		return "следующее взыскание приведёт к временному ограничению на 7 дней"
	default:
		return "взыскание учтено"
	}
}
