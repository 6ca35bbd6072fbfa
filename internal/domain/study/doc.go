// Package study содержит доменную модель учебного прогресса студента.
//
// Пакет определяет:
//
//   - Сущности (Entities): Program, Semester, Module, ExamResult
//   - Value Objects: Grade, ExamForm, EnrollmentKind, ModuleStatus
//   - Построение графа из плоских записей хранилища: BuildProgram
//   - Интерфейс шлюза хранилища: Gateway
//
// # Архитектурные принципы
//
//  1. Нулевые внешние зависимости - только стандартная библиотека Go
//  2. Dependency Inversion - Gateway реализуется в infrastructure
//  3. Производные метрики вычисляются при чтении и нигде не хранятся
//
// # Граф программы
//
// Program владеет семестрами и модулями. Semester ссылается на модули
// двумя независимыми списками: planned (запланированные) и current
// (текущие/сданные). Модуль может присутствовать в обоих списках и в
// любом количестве семестров. Module владеет результатами экзаменов.
//
// Граф строится заново из хранилища при каждом чтении:
//
//	records, err := loadRecords(ctx)
//	program, err := study.BuildProgram(records)
//	progress := program.Progress()
//
// # Метрики
//
// Средняя оценка модуля - среднее арифметическое выставленных оценок,
// округлённое до 2 знаков. Модуль сдан, если средняя оценка не хуже 4.0
// (меньше - лучше). Взвешенная средняя программы считается по кредитам.
//
// Все аксессоры возвращают копии коллекций: изменение полученного среза
// не влияет на граф.
package study
