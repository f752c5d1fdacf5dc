package exceptions

import (
	"sync"

	"github.com/platinummonkey/auval/pkg/native"
)

const (
	reasonUseMAS        = "Use the MAS version of this AU"
	reasonContactVendor = "Contact the manufacturer for an updated version of this Audio Unit"
)

var (
	defaultOnce   sync.Once
	defaultPolicy *Policy
)

// Default returns the built-in exception table
func Default() *Policy {
	defaultOnce.Do(func() {
		p, err := New(builtinRules())
		if err != nil {
			panic("exceptions: invalid built-in table: " + err.Error())
		}
		defaultPolicy = p
	})
	return defaultPolicy
}

func id(typ, subtype, manufacturer native.OSType) native.Identity {
	return native.Identity{Type: typ, Subtype: subtype, Manufacturer: manufacturer}
}

func masDuplicate(identity native.Identity, reason string) Rule {
	return Rule{Identity: identity, Disposition: AlwaysInvalid, Reason: reason, DuplicateFormat: true}
}

func upTo(identity native.Identity, version int32) Rule {
	return Rule{Identity: identity, Disposition: InvalidAtOrBelowVersion, Version: version, Reason: reasonContactVendor}
}

func builtinRules() []Rule {
	aumu := native.TypeMusicDevice
	aufx := native.TypeEffect
	fc := native.FourCC

	rules := []Rule{
		masDuplicate(id(aumu, fc("Volt"), fc("Motu")), "Use the MAS version of Volta"),
		masDuplicate(id(aumu, 1163555664, 1297044565), "Use the MAS version of Mach-5"),
		masDuplicate(id(aumu, fc("EKEY"), fc("MOTU")), "Use the MAS version of ElectricKeys"),
		masDuplicate(id(aumu, fc("M5II"), fc("MOTU")), "Use the MAS version of Mach-5"),
		masDuplicate(id(aumu, fc("MX4!"), fc("Motu")), "Use the MAS version of MX4"),
		masDuplicate(id(aumu, fc("ETHN"), fc("MOTU")), "Use the MAS version of Ethno"),
		masDuplicate(id(aumu, fc("MVO "), fc("MOTU")), "Use the MAS version of MSI"),
		masDuplicate(id(aumu, fc("UPLA"), fc("USB ")), reasonUseMAS),
		masDuplicate(id(aumu, fc("UVIW"), fc("UVI ")), reasonUseMAS),
		masDuplicate(id(aumu, fc("BPM "), fc("MOTU")), reasonUseMAS),
		masDuplicate(id(aufx, fc("BPMS"), fc("MOTU")), reasonUseMAS),
	}

	// TC Electronic effects up to version 500
	const tc native.OSType = 1448301600
	for _, subtype := range []native.OSType{
		842282819, 842282861, 1129738850, 1346585715, 1346587757, 1346587763,
		1346596723, 1346720115, 1347236723, 1347244659, 1347834733, 1347834739,
	} {
		rules = append(rules, upTo(id(aufx, subtype, tc), 500))
	}
	rules = append(rules,
		upTo(id(aumu, 1345335667, tc), 500),
		upTo(id(aumu, 1433302137, 1114207304), 65536),
		upTo(id(aufx, 1383422001, 1430808152), 65536),
		// Apple DLS music device
		upTo(id(aumu, 1684828960, native.ManufacturerApple), 65536),
	)
	return rules
}
