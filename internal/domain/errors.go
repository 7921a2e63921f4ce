package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation — корневая ошибка валидации; все ошибки полей оборачивают её.
	ErrValidation = errors.New("validation failed")
	// ErrCorruptRecord сигнализирует, что запись шага в хранилище не отображается в вариант.
	ErrCorruptRecord = errors.New("corrupt tracking step record")

	// Ошибка отсутствующего имени клиента.
	ErrFirstNameRequired = fmt.Errorf("%w: customer first_name is required", ErrValidation)
	// Ошибка отсутствующей фамилии клиента.
	ErrLastNameRequired = fmt.Errorf("%w: customer last_name is required", ErrValidation)
	// Ошибка отсутствующего названия товара.
	ErrProductNameRequired = fmt.Errorf("%w: product name is required", ErrValidation)
	// Ошибка при некорректном количестве товара (<= 0).
	ErrProductQtyInvalid = fmt.Errorf("%w: product quantity must be greater than zero", ErrValidation)
	// Ошибка отрицательной цены товара.
	ErrProductPriceNegative = fmt.Errorf("%w: product price must be non-negative", ErrValidation)
	// Ошибка отрицательной стоимости доставки.
	ErrShippingPriceNegative = fmt.Errorf("%w: shipping price must be non-negative", ErrValidation)
	// ErrShippingNotFree — при бесплатной доставке стоимость доставки обязана быть нулевой.
	ErrShippingNotFree = fmt.Errorf("%w: shipping price must be zero when shipping is free", ErrValidation)
	// ErrImageAmbiguous — у товара одновременно указаны URL и файл для загрузки.
	ErrImageAmbiguous = fmt.Errorf("%w: product image must be either url or pending upload", ErrValidation)
	// Ошибка отсутствующего кода отслеживания.
	ErrTrackingCodeRequired = fmt.Errorf("%w: tracking code is required", ErrValidation)
	// ErrUnknownStepType — тип шага не входит в шесть поддерживаемых.
	ErrUnknownStepType = fmt.Errorf("%w: unknown tracking step type", ErrValidation)
	// ErrForeignField — шаг несёт поле, принадлежащее другому варианту.
	ErrForeignField = fmt.Errorf("%w: tracking step carries a field of another variant", ErrValidation)
	// ErrInvalidCapital — город не входит в перечень столиц.
	ErrInvalidCapital = fmt.Errorf("%w: city is not a supported capital", ErrValidation)
	// ErrInvalidPhone — телефон клиента нельзя использовать для отправки сообщения.
	ErrInvalidPhone = fmt.Errorf("%w: customer phone must contain area code and number", ErrValidation)

	// ErrOrderNotFound возвращается, если заказ не найден в репозитории.
	ErrOrderNotFound = errors.New("order not found")
	// ErrOrderExists — заказ с таким идентификатором уже сохранён.
	ErrOrderExists = errors.New("order already exists")
	// ErrTrackingCodeTaken — код отслеживания уже принадлежит другому заказу.
	ErrTrackingCodeTaken = errors.New("tracking code already in use")
	// ErrUnauthenticated — в контексте нет текущего пользователя.
	ErrUnauthenticated = errors.New("user is not authenticated")
	// ErrForbidden — заказ принадлежит другому пользователю.
	ErrForbidden = errors.New("order belongs to another user")
	// ErrBlobExists — файл с таким ключом уже загружен, а перезапись не разрешена.
	ErrBlobExists = errors.New("blob already exists")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// MissingFieldError описывает незаполненное обязательное поле шага.
type MissingFieldError struct {
	Step  StepType
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("%s step requires %s", e.Step, e.Field)
}

// Is позволяет сравнивать ошибку с ErrValidation через errors.Is.
func (e *MissingFieldError) Is(target error) bool {
	return target == ErrValidation
}

// CorruptRecordError описывает запись tracking_steps, которую нельзя декодировать.
type CorruptRecordError struct {
	RecordID   string
	StatusType string
	Column     string
}

func (e *CorruptRecordError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("%s: record %q has unknown status_type %q", ErrCorruptRecord, e.RecordID, e.StatusType)
	}
	return fmt.Sprintf("%s: record %q (%s) has invalid %s", ErrCorruptRecord, e.RecordID, e.StatusType, e.Column)
}

func (e *CorruptRecordError) Unwrap() error {
	return ErrCorruptRecord
}

// IsValidation проверяет, относится ли ошибка к ошибкам валидации.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsCorruptRecord проверяет, является ли ошибка повреждённой записью шага.
func IsCorruptRecord(err error) bool {
	return errors.Is(err, ErrCorruptRecord)
}
