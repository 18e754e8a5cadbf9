// Package steps содержит исполнители видов шагов pipeline.
//
// # Обзор
//
// Каждый вид шага (sh, notify, archive, approval, checkout)
// реализует интерфейс Step:
//
//	type Step interface {
//	    Kind() string
//	    Execute(ctx context.Context, req *Request) (*Response, error)
//	}
//
// Request несёт определение шага, область переменных и рабочий
// каталог запуска. Response несёт outputs и захваченный вывод.
// Выводы шагов проходят через маскирование секретов до того, как
// попадут в лог или результат.
//
// # Registry
//
// Registry — фабрика исполнителей по виду шага. Неизвестный вид
// отсекается ещё при компиляции плана, поэтому промах реестра в
// рантайме означает рассинхронизацию конфигурации движка.
//
// # Семантика ошибок
//
// Ошибка Execute означает неуспех шага; retry и таймауты живут
// уровнем выше, в движке. Шаг обязан уважать ctx.Done() — так
// работают и отмена запуска, и таймаут стадии.
package steps
