package metabolic

// Derived is the full set of computed profile fields.
type Derived struct {
	BMR                float64
	BMI                float64
	TDEE               float64
	BodyFatPercentages map[string]float64
}

// Derive computes every derived profile field. BMR and BMI are rounded to 2
// decimals, TDEE is computed from the unrounded BMR. Each requested body-fat
// method must succeed; an empty list means the BMI method only.
func Derive(s Subject, activityLevel string, methods []BodyFatMethod) (Derived, error) {
	bmr, err := BMR(s)
	if err != nil {
		return Derived{}, err
	}
	bmi, err := BMI(s.WeightKg, s.HeightCm)
	if err != nil {
		return Derived{}, err
	}
	tdee, err := TDEE(bmr, activityLevel)
	if err != nil {
		return Derived{}, err
	}
	if len(methods) == 0 {
		methods = []BodyFatMethod{MethodBMI}
	}
	fat := make(map[string]float64, len(methods))
	for _, m := range methods {
		v, err := BodyFatPercent(m, s)
		if err != nil {
			return Derived{}, err
		}
		fat[string(m)] = v
	}
	return Derived{
		BMR:                Round(bmr, 2),
		BMI:                Round(bmi, 2),
		TDEE:               Round(tdee, 2),
		BodyFatPercentages: fat,
	}, nil
}
