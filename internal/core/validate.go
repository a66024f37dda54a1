package core

// CheckFeatureLayout fails with ErrShapeMismatch when the classifier declares an
// input layout that differs from columns in count or order.
func CheckFeatureLayout(model Classifier, columns []string) error {
	layout, ok := model.(FeatureLayout)
	if !ok {
		return nil
	}
	expected := layout.FeatureNames()
	if len(expected) != len(columns) {
		return markf(ErrShapeMismatch, "data has %d feature columns, model expects %d", len(columns), len(expected))
	}
	for j, name := range expected {
		if columns[j] != name {
			return markf(ErrShapeMismatch, "feature column %d is %q, model expects %q", j, columns[j], name)
		}
	}
	return nil
}

// ValidateModel checks a classifier against the feature matrix it will explain and
// the class names it must produce, before any attribution work starts.
func ValidateModel(model Classifier, features *FeatureMatrix, classNames []string) error {
	if model == nil {
		return markf(ErrModelIncompatible, "no classifier supplied")
	}
	if len(classNames) == 0 {
		return markf(ErrModelIncompatible, "at least one class name is required")
	}
	seen := make(map[string]struct{}, len(classNames))
	for _, name := range classNames {
		if _, ok := seen[name]; ok {
			return markf(ErrModelIncompatible, "duplicate class name %q", name)
		}
		seen[name] = struct{}{}
	}
	if err := CheckFeatureLayout(model, features.Columns); err != nil {
		return err
	}
	if counter, ok := model.(ClassCounter); ok && counter.NumClasses() != len(classNames) {
		return markf(ErrModelIncompatible, "model predicts %d classes, %d class names given",
			counter.NumClasses(), len(classNames))
	}
	if features.NumRows() == 0 {
		return nil
	}
	// a one row prediction catches classifiers that report nothing about themselves
	if _, err := predict(model, features.Rows[:1], len(classNames)); err != nil {
		return err
	}
	return nil
}
