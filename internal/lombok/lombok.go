// Package lombok synthesizes getter/setter Declarations from captured
// @Data/@Getter/@Setter usages (C4), per Lombok's public naming contract —
// never by resolving the annotation to lombok.Data itself (see
// internal/extractor's lombokPlausible).
package lombok

import "github.com/kjxref/kjxref/internal/model"

// Synthesize appends synthesized accessor declarations to ff.Declarations
// for every LombokAnnotation it captured, honoring the conflict rule (an
// explicit method with the same simple name already present suppresses
// synthesis) and the non-static / final rules from §4.4.
func Synthesize(ff *model.FileFacts) {
	if len(ff.LombokAnnotations) == 0 {
		return
	}

	existingMethods := map[string]map[string]bool{}
	var fields []*model.Declaration
	for _, d := range ff.Declarations {
		switch d.Kind {
		case model.KindMethod:
			if d.Synthesized {
				continue
			}
			if existingMethods[d.Containing] == nil {
				existingMethods[d.Containing] = map[string]bool{}
			}
			existingMethods[d.Containing][d.Name] = true
		case model.KindField:
			fields = append(fields, d)
		}
	}

	type want struct{ getter, setter bool }
	wants := make(map[*model.Declaration]*want, len(fields))
	addWant := func(f *model.Declaration, getter, setter bool) {
		w := wants[f]
		if w == nil {
			w = &want{}
			wants[f] = w
		}
		w.getter = w.getter || getter
		w.setter = w.setter || setter
	}

	for _, la := range ff.LombokAnnotations {
		getter, setter := false, false
		switch la.Kind {
		case model.LombokData:
			getter, setter = true, true
		case model.LombokGetter:
			getter = true
		case model.LombokSetter:
			setter = true
		}
		for _, f := range fields {
			if f.Containing != la.ClassFQN {
				continue
			}
			if la.FieldName != "" && f.Name != la.FieldName {
				continue
			}
			if f.FieldStatic {
				continue
			}
			addWant(f, getter, setter)
		}
	}

	for _, f := range fields {
		w := wants[f]
		if w == nil {
			continue
		}
		getterName, setterName, _ := accessorNames(f.Name, f.FieldType)
		classFQN := f.Containing

		if w.getter && !existingMethods[classFQN][getterName] {
			ff.Declarations = append(ff.Declarations, &model.Declaration{
				Name: getterName, FQN: classFQN + "." + getterName, Kind: model.KindMethod,
				Containing: classFQN, Pos: f.Pos, Language: model.Java, Synthesized: true,
			})
		}
		if w.setter && !f.FieldFinal && !existingMethods[classFQN][setterName] {
			ff.Declarations = append(ff.Declarations, &model.Declaration{
				Name: setterName, FQN: classFQN + "." + setterName, Kind: model.KindMethod,
				Containing: classFQN, Pos: f.Pos, Language: model.Java, Synthesized: true,
			})
		}
	}
}

// accessorNames implements §4.4's casing rule: a field named "isActive" of
// boolean type yields getter "isActive" (prefix not doubled) and setter
// "setActive" (prefix stripped); a field "active" of boolean type yields
// "isActive"/"setActive"; any other type yields "getX"/"setX".
func accessorNames(name, typ string) (getter, setter string, isBool bool) {
	isBool = typ == "boolean" || typ == "Boolean"
	base := name
	if isBool && len(name) > 2 && name[0] == 'i' && name[1] == 's' {
		if third := name[2]; third >= 'A' && third <= 'Z' {
			base = name[2:]
		}
	}
	capBase := capitalize(base)
	if isBool {
		getter = "is" + capBase
	} else {
		getter = "get" + capBase
	}
	setter = "set" + capBase
	return
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	b := []byte(s)
	if b[0] >= 'a' && b[0] <= 'z' {
		b[0] -= 'a' - 'A'
	}
	return string(b)
}
