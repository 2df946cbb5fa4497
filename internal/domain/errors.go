package domain

import "errors"

var (
	// ErrMenuLoad — ошибка загрузки или разбора меню; ранее загруженные данные остаются на месте.
	ErrMenuLoad = errors.New("menu load failed")
	// Ошибка пустого имени позиции меню.
	ErrItemNameRequired = errors.New("menu item name is required")
	// Ошибка отрицательной базовой цены позиции.
	ErrItemPriceNegative = errors.New("menu item price must be non-negative")
	// Ошибка неподдерживаемого режима выбора в группе опций.
	ErrSelectionModeInvalid = errors.New("option group selection mode is invalid")
	// Ошибка группы опций без вариантов выбора.
	ErrGroupChoicesRequired = errors.New("option group must contain at least one choice")

	// ErrSelectorClosed — операция над селектором опций вне состояния Open.
	ErrSelectorClosed = errors.New("option selector is not open")
	// ErrUnknownOptionGroup — позиция не объявляет такую группу опций.
	ErrUnknownOptionGroup = errors.New("unknown option group")
	// ErrUnknownChoice — группа не содержит такой вариант выбора.
	ErrUnknownChoice = errors.New("unknown option choice")
	// ErrRequiredOptionMissing блокирует commit, пока обязательная группа не выбрана.
	ErrRequiredOptionMissing = errors.New("required option has no selection")

	// ErrLineIndex — индекс строки корзины вне диапазона (ошибка вызывающего кода).
	ErrLineIndex = errors.New("cart line index out of range")
	// ErrCartEmpty — попытка оформить заказ из пустой корзины.
	ErrCartEmpty = errors.New("cart is empty")

	// ErrIdentityNotReady — удалённые операции с корзиной до установления identity.
	ErrIdentityNotReady = errors.New("identity is not established")
	// ErrCartNotFound возвращается хранилищем, если документа корзины ещё нет.
	ErrCartNotFound = errors.New("cart document not found")
	// ErrCartSync — ошибка чтения/записи/подписки удалённого документа корзины.
	ErrCartSync = errors.New("cart sync failed")

	// Ошибка пустого имени клиента при оформлении заказа.
	ErrCustomerNameRequired = errors.New("customer name is required")
	// Ошибка отсутствующего времени получения заказа.
	ErrCollectionTimeRequired = errors.New("collection time is required")
	// Ошибка неразборчивого времени получения.
	ErrCollectionTimeInvalid = errors.New("collection time is not a valid timestamp")
	// Ошибка времени получения раньше момента оформления.
	ErrCollectionTimeInPast = errors.New("collection time must not be in the past")
	// Ошибка несоответствия суммы заказа и сумм строк.
	ErrOrderTotalMismatch = errors.New("order total does not match line totals")
	// ErrOrderSubmit — передача заказа внешнему получателю не удалась; корзина не трогается.
	ErrOrderSubmit = errors.New("order submission failed")
)

// IsLineIndex проверяет, является ли ошибка выходом индекса строки за диапазон.
func IsLineIndex(err error) bool {
	return errors.Is(err, ErrLineIndex)
}

// IsValidation сообщает, относится ли ошибка к проверке пользовательского ввода.
func IsValidation(err error) bool {
	return errors.Is(err, ErrCustomerNameRequired) ||
		errors.Is(err, ErrCollectionTimeRequired) ||
		errors.Is(err, ErrCollectionTimeInvalid) ||
		errors.Is(err, ErrCollectionTimeInPast) ||
		errors.Is(err, ErrRequiredOptionMissing)
}
