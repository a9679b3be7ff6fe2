package schema

import (
	"fmt"

	"content-manager/core/utils"
	"content-manager/feature/content/models"
)

// Definition converts an evaluated schema object into a collection definition.
func Definition(obj map[string]any) (*models.CollectionDef, error) {
	def := &models.CollectionDef{}
	for key, val := range obj {
		switch key {
		case "_id", "id":
			def.ID = utils.ToString(val)
		case "name":
			def.Name = utils.ToString(val)
		case "label":
			def.Label = utils.ToString(val)
		case "icon":
			def.Icon = utils.ToString(val)
		case "status":
			def.Status = utils.ToString(val)
		case "slug":
			def.Slug = utils.ToString(val)
		case "description":
			def.Description = utils.ToString(val)
		case "order":
			order := utils.ToInt(val)
			def.Order = &order
		case "fields":
			fields, err := toFields(val)
			if err != nil {
				return nil, err
			}
			def.Fields = fields
		case "translations":
			translations, err := toTranslations(val)
			if err != nil {
				return nil, err
			}
			def.Translations = translations
		default:
			if def.Extra == nil {
				def.Extra = make(map[string]any)
			}
			def.Extra[key] = val
		}
	}
	return def, nil
}

func toFields(val any) ([]map[string]any, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("fields: expected an array, got %T", val)
	}
	fields := make([]map[string]any, 0, len(list))
	for i, item := range list {
		field, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("fields[%d]: expected an object, got %T", i, item)
		}
		fields = append(fields, field)
	}
	return fields, nil
}

func toTranslations(val any) ([]models.Translation, error) {
	list, ok := val.([]any)
	if !ok {
		return nil, fmt.Errorf("translations: expected an array, got %T", val)
	}
	out := make([]models.Translation, 0, len(list))
	for i, item := range list {
		entry, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("translations[%d]: expected an object, got %T", i, item)
		}
		out = append(out, models.Translation{
			LanguageTag:     utils.ToString(entry["languageTag"]),
			TranslationName: utils.ToString(entry["translationName"]),
		})
	}
	return out, nil
}
