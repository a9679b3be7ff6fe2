package schema

import "fmt"

// WidgetFunc builds a field definition from the arguments of a constructor call.
type WidgetFunc func(args []any) (any, error)

// Registry is the whitelist of constructors a schema file may call.
// Keys are bare widget names; calls through a namespace (widgets.Input) resolve
// by their last segment.
type Registry map[string]WidgetFunc

// Lookup resolves a possibly dotted constructor name.
func (r Registry) Lookup(parts []string) (WidgetFunc, bool) {
	if len(parts) == 0 || r == nil {
		return nil, false
	}
	if len(parts) > 2 {
		return nil, false
	}
	fn, ok := r[parts[len(parts)-1]]
	return fn, ok
}

// Register adds or replaces a constructor.
func (r Registry) Register(name string, fn WidgetFunc) {
	r[name] = fn
}

// WidgetKey is the field property recording which widget built the field.
const WidgetKey = "widget"

// builtinWidgets are the field widgets shipped with the CMS.
var builtinWidgets = []string{
	"Checkbox",
	"ColorPicker",
	"Currency",
	"Date",
	"DateRange",
	"Email",
	"Group",
	"Input",
	"MediaUpload",
	"MegaMenu",
	"Number",
	"PhoneNumber",
	"Radio",
	"Rating",
	"Relation",
	"RemoteVideo",
	"Repeater",
	"RichText",
	"Select",
	"Seo",
	"Slug",
	"Tags",
	"Text",
	"Textarea",
}

// DefaultRegistry returns a registry with every built-in widget.
func DefaultRegistry() Registry {
	r := make(Registry, len(builtinWidgets))
	for _, name := range builtinWidgets {
		r.Register(name, FieldWidget(name))
	}
	return r
}

// FieldWidget returns a constructor that copies its single object argument
// into a field definition tagged with the widget name.
func FieldWidget(name string) WidgetFunc {
	return func(args []any) (any, error) {
		field := map[string]any{WidgetKey: name}
		if len(args) == 0 || args[0] == nil {
			return field, nil
		}
		if len(args) > 1 {
			return nil, fmt.Errorf("expected at most one argument, got %d", len(args))
		}
		cfg, ok := args[0].(map[string]any)
		if !ok {
			return nil, fmt.Errorf("expected an object argument, got %T", args[0])
		}
		for k, v := range cfg {
			field[k] = v
		}
		field[WidgetKey] = name
		return field, nil
	}
}
