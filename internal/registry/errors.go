package registry

import "errors"

// Ошибки Registry.
var (
	// ErrNotFound — run с таким id не существует.
	ErrNotFound = errors.New("waterfall run not found")

	// ErrAlreadyExists — run с таким id уже создан (Put только для создания).
	ErrAlreadyExists = errors.New("waterfall run already exists")

	// ErrConflict — оптимистичная конкуренция: version в Update
	// не совпал с сохранённым. Вызывающий перечитывает и повторяет.
	ErrConflict = errors.New("waterfall run version conflict")
)
