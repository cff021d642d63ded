package secretsdemo

import (
	"flag"
	"fmt"
	"sort"
	"strings"
)

// oneof is a flag.Value restricted to the keys of choices.
type oneof struct {
	choices map[string]interface{}
	value   string
}

var _ flag.Getter = (*oneof)(nil)

func (o *oneof) String() string {
	return o.value
}

func (o *oneof) Get() interface{} {
	return o.choices[o.value]
}

func (o *oneof) Set(v string) error {
	if _, ok := o.choices[v]; ok {
		o.value = v
		return nil
	}
	return fmt.Errorf("%q is not one of the choices of %s", v, o.choicesString())
}

func (o oneof) choicesString() string {
	choices := make([]string, 0, len(o.choices))
	for c := range o.choices {
		choices = append(choices, fmt.Sprintf("%q", c))
	}
	sort.Strings(choices)
	return "(" + strings.Join(choices, ", ") + ")"
}
