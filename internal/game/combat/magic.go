package combat

import "fmt"

// poweredStaves maps a powered weapon to its base damage at a given visible
// magic level.
var poweredStaves = map[string]func(level int) int{
	SignatureStaff:         func(l int) int { return l/3 + 1 },
	"Sanguinesti staff":    func(l int) int { return l/3 - 1 },
	"Trident of the swamp": func(l int) int { return l/3 - 2 },
	"Trident of the seas":  func(l int) int { return l/3 - 5 },
	"Warped sceptre":       func(l int) int { return (8*l + 96) / 37 },
	"Accursed sceptre":     func(l int) int { return l/3 - 6 },
}

// MagicBaseDamage returns the base max hit of the powered weapon named weapon
// at the given magic level.
//
// Postcondition: err wraps ErrInvalidWeapon iff weapon has no table entry.
// The result is never negative.
func MagicBaseDamage(weapon string, level int) (int, error) {
	f, ok := poweredStaves[weapon]
	if !ok {
		return 0, fmt.Errorf("%w: %q has no magic base damage", ErrInvalidWeapon, weapon)
	}
	return max(f(level), 0), nil
}
