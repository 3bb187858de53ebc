package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/tyemirov/seshmux/internal/types"
)

const (
	booleanFlagTypeName       = "bool"
	booleanFlagTrueLiteral    = "true"
	booleanFlagAcceptedValues = "true, false, yes, no, on, off, 1, 0"
	errorBooleanFlagFormat    = "invalid boolean value %q for --%s; accepted values: %s"
	errorInvalidFormat        = "invalid format value '%s'"
	flagPrefix                = "--"
	flagTerminator            = "--"
)

var booleanFlagLiterals = map[string]bool{
	"true":  true,
	"t":     true,
	"1":     true,
	"yes":   true,
	"y":     true,
	"on":    true,
	"false": false,
	"f":     false,
	"0":     false,
	"no":    false,
	"n":     false,
	"off":   false,
}

func parseBooleanLiteral(input string) (bool, bool) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if normalized == "" {
		return true, true
	}
	parsed, known := booleanFlagLiterals[normalized]
	return parsed, known
}

// booleanFlagValue accepts yes/no style literals in addition to what strconv.ParseBool understands.
type booleanFlagValue struct {
	target  *bool
	flagKey string
}

func (value *booleanFlagValue) Set(input string) error {
	parsed, known := parseBooleanLiteral(input)
	if !known || value.target == nil {
		return fmt.Errorf(errorBooleanFlagFormat, input, value.flagKey, booleanFlagAcceptedValues)
	}
	*value.target = parsed
	return nil
}

func (value *booleanFlagValue) String() string {
	if value == nil || value.target == nil {
		return strconv.FormatBool(false)
	}
	return strconv.FormatBool(*value.target)
}

func (value *booleanFlagValue) Type() string {
	return booleanFlagTypeName
}

func registerBooleanFlag(flagSet *pflag.FlagSet, target *bool, name string, defaultValue bool, usage string) {
	if flagSet == nil || target == nil {
		return
	}
	*target = defaultValue
	flagSet.Var(&booleanFlagValue{target: target, flagKey: name}, name, usage)
	if lookup := flagSet.Lookup(name); lookup != nil {
		lookup.DefValue = strconv.FormatBool(defaultValue)
		lookup.NoOptDefVal = booleanFlagTrueLiteral
	}
}

// normalizeBooleanFlagArguments rewrites "--flag value" into "--flag=value" for boolean flags
// whose following argument is a boolean literal, so "--persist no" is not read as a path.
func normalizeBooleanFlagArguments(command *cobra.Command, arguments []string) []string {
	if command == nil || len(arguments) == 0 {
		return arguments
	}
	booleanFlags := make(map[string]struct{})
	collectBooleanFlagNames(command, booleanFlags)
	if len(booleanFlags) == 0 {
		return arguments
	}

	normalized := make([]string, 0, len(arguments))
	for position := 0; position < len(arguments); position++ {
		currentArgument := arguments[position]
		if currentArgument == flagTerminator {
			return append(normalized, arguments[position:]...)
		}
		flagName, isLongFlag := strings.CutPrefix(currentArgument, flagPrefix)
		_, isBooleanFlag := booleanFlags[flagName]
		if !isLongFlag || !isBooleanFlag || strings.Contains(flagName, "=") || position+1 >= len(arguments) {
			normalized = append(normalized, currentArgument)
			continue
		}
		nextArgument := arguments[position+1]
		if _, known := parseBooleanLiteral(nextArgument); known && strings.TrimSpace(nextArgument) != "" && !strings.HasPrefix(nextArgument, "-") {
			normalized = append(normalized, fmt.Sprintf("%s%s=%s", flagPrefix, flagName, nextArgument))
			position++
			continue
		}
		normalized = append(normalized, currentArgument)
	}
	return normalized
}

func collectBooleanFlagNames(command *cobra.Command, target map[string]struct{}) {
	visit := func(flagSet *pflag.FlagSet) {
		flagSet.VisitAll(func(flag *pflag.Flag) {
			if flag.Value != nil && flag.Value.Type() == booleanFlagTypeName {
				target[flag.Name] = struct{}{}
			}
		})
	}
	visit(command.PersistentFlags())
	visit(command.Flags())
	for _, child := range command.Commands() {
		collectBooleanFlagNames(child, target)
	}
}

func normalizeFormat(format string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(format))
	switch normalized {
	case types.FormatRaw, types.FormatJSON, types.FormatXML:
		return normalized, nil
	default:
		return "", fmt.Errorf(errorInvalidFormat, format)
	}
}
