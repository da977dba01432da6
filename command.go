package rqconsole

import "fmt"

// CommandKind discriminates the outbound command verbs.
type CommandKind uint8

const (
	CommandReset CommandKind = iota
	CommandPing
	CommandLaunchSecretPartial
	CommandLaunchSecretFull
	CommandUnlockPyros
	CommandIgnition
	CommandObservableGroup
)

// AdcGain enumerates the legal Reset gain settings.
type AdcGain uint8

const (
	AdcGain1  AdcGain = 1
	AdcGain2  AdcGain = 2
	AdcGain4  AdcGain = 4
	AdcGain8  AdcGain = 8
	AdcGain16 AdcGain = 16
	AdcGain32 AdcGain = 32
	AdcGain64 AdcGain = 64
)

// Command is a tagged-union outbound request. Only the fields relevant to
// Kind are meaningful.
type Command struct {
	Kind             CommandKind
	Gain             AdcGain
	SecretA          uint8
	SecretB          uint8
	ObservableGroupN int
}

// ResetCommand builds a Reset command with the given gain.
func ResetCommand(gain AdcGain) Command { return Command{Kind: CommandReset, Gain: gain} }

// PingCommand builds a liveness-probe command.
func PingCommand() Command { return Command{Kind: CommandPing} }

// LaunchSecretPartialCommand builds the first-half arming interlock command.
func LaunchSecretPartialCommand(secret uint8) Command {
	return Command{Kind: CommandLaunchSecretPartial, SecretA: secret}
}

// LaunchSecretFullCommand builds the full arming interlock command.
func LaunchSecretFullCommand(a, b uint8) Command {
	return Command{Kind: CommandLaunchSecretFull, SecretA: a, SecretB: b}
}

// UnlockPyrosCommand builds the pyro-enable command.
func UnlockPyrosCommand() Command { return Command{Kind: CommandUnlockPyros} }

// IgnitionCommand builds the fire command.
func IgnitionCommand() Command { return Command{Kind: CommandIgnition} }

// ObservableGroupCommand builds a request for observable group n.
func ObservableGroupCommand(n int) Command {
	return Command{Kind: CommandObservableGroup, ObservableGroupN: n}
}

// verb returns the wire verb token for c, e.g. "RESET" or "SECRET_AB".
func (c Command) verb() string {
	switch c.Kind {
	case CommandReset:
		return "RESET"
	case CommandPing:
		return "PING"
	case CommandLaunchSecretPartial:
		return "SECRET_A"
	case CommandLaunchSecretFull:
		return "SECRET_AB"
	case CommandUnlockPyros:
		return "UNLOCK_PYROS"
	case CommandIgnition:
		return "IGNITION"
	case CommandObservableGroup:
		return "OBG"
	default:
		return "???"
	}
}

// payload renders the command's verb and parameters, e.g. "RESET,01".
func (c Command) payload() string {
	switch c.Kind {
	case CommandReset:
		sum := formatChecksum(uint8(c.Gain))
		return fmt.Sprintf("%s,%c%c", c.verb(), sum[0], sum[1])
	case CommandLaunchSecretPartial:
		sum := formatChecksum(c.SecretA)
		return fmt.Sprintf("%s,%c%c", c.verb(), sum[0], sum[1])
	case CommandLaunchSecretFull:
		sumA := formatChecksum(c.SecretA)
		sumB := formatChecksum(c.SecretB)
		return fmt.Sprintf("%s,%c%c,%c%c", c.verb(), sumA[0], sumA[1], sumB[0], sumB[1])
	case CommandObservableGroup:
		return fmt.Sprintf("%s,%d", c.verb(), c.ObservableGroupN)
	default:
		return c.verb()
	}
}
